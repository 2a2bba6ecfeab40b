package audioproc_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakuraviz/sakura/audioproc"
	"github.com/sakuraviz/sakura/sakuraerr"
)

func TestKillOnNilProcessIsNoOp(t *testing.T) {
	t.Parallel()

	var p *audioproc.Process

	assert.NoError(t, p.Kill())
}

func TestSpawnAndKill(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("ffplay"); err != nil {
		t.Skip("ffplay not installed")
	}

	p, err := audioproc.Spawn("/dev/null")
	require.NoError(t, err)

	require.NoError(t, p.Kill())
}

func TestSpawnMissingBinary(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("ffplay"); err == nil {
		t.Skip("ffplay is installed; cannot exercise the missing-binary path")
	}

	_, err := audioproc.Spawn("irrelevant")
	require.ErrorIs(t, err, sakuraerr.ErrAudioFailed)
}
