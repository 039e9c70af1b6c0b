package dvbci

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avaneesh/dvbci-go/pkg/internal/logger"
)

func TestSetLogFile_ReusesLogger(t *testing.T) {
	prev := logger.GetDefault()
	defer logger.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "dvbci.log")
	SetLogFile(LevelInfo, path)
	first := Logger()

	SetLogFile(LevelDebug, path)
	require.Same(t, first, Logger())
	SetLogLevel(LevelWarn)
	require.Same(t, first, Logger())
	require.Equal(t, logger.LevelWarn, first.(*logger.DefaultLogger).Level())

	SetLogFile(LevelInfo, filepath.Join(t.TempDir(), "other.log"))
	require.NotSame(t, first, Logger())
}
