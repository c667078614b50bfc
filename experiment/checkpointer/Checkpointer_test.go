package checkpointer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/samuelfneumann/pendulumac/timestep"
)

type recorder struct {
	saved []string
}

func (r *recorder) Save(filename string) error {
	r.saved = append(r.saved, filename)
	return nil
}

func TestNEpisode(t *testing.T) {
	r := &recorder{}
	c := NewNEpisode(2, r, FilenameEnumerator(0, "agent", ".bin"))

	for episode := 0; episode < 5; episode++ {
		require.NoError(t, c.Checkpoint(ts.New(ts.First, 0, 1, nil, 0)))
		require.NoError(t, c.Checkpoint(ts.New(ts.Mid, 0, 1, nil, 1)))
		require.NoError(t, c.Checkpoint(ts.New(ts.Last, 0, 1, nil, 2)))
	}

	assert.Equal(t, []string{"agent1.bin", "agent2.bin"}, r.saved)
}

func TestFileTimer(t *testing.T) {
	name := FileTimer("dir/agent", ".bin")()
	assert.True(t, strings.HasPrefix(name, "dir/agent-"))
	assert.True(t, strings.HasSuffix(name, "Z.bin"))

	at := time.Date(2021, 10, 19, 12, 5, 1, 7, time.FixedZone("", 3600))
	name = fileTimer("agent", ".bin", func() time.Time { return at })()
	assert.Equal(t, "agent-20211019T110501.000000007Z.bin", name)
}
