package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/tpc/pkg/table"
)

type ConfigTestSuite struct {
	suite.Suite
}

func validConfig() *Config {
	c := DefaultConfig()
	c.PlayerName = "ann"
	c.TableName = "t"
	c.MaxPlayers = 4
	return c
}

func (s *ConfigTestSuite) TestVerifyConfig() {
	config := validConfig()
	s.Require().NoError(VerifyConfig(config))

	config.PlayerName = ""
	s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig)
	config.PlayerName = strings.Repeat("x", table.MaxNameLen+1)
	s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig)
	config.PlayerName = strings.Repeat("x", table.MaxNameLen)
	s.Require().NoError(VerifyConfig(config))

	config.TableName = "a/b"
	s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig)
	config.TableName = "t"

	for _, n := range []int{-1, 0, 1, 53} {
		config.MaxPlayers = n
		s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig, "players %d", n)
	}
	config.MaxPlayers = 52
	s.Require().NoError(VerifyConfig(config))

	config.ChannelDir = "/" + strings.Repeat("d", table.MaxChannelLen)
	s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig)
	config.ChannelDir = "/tmp"

	config.In = nil
	s.Require().ErrorIs(VerifyConfig(config), ErrInvalidConfig)
	config.AutoPlay = true
	s.Require().NoError(VerifyConfig(config))

	s.Require().ErrorIs(VerifyConfig(nil), ErrInvalidConfig)
}

func (s *ConfigTestSuite) TestLoadEnv() {
	s.T().Setenv(EnvShmDir, "/run/shm")
	s.T().Setenv(EnvChannelDir, "/run/fifo")
	s.T().Setenv(EnvLogDir, "/var/log/tpc")
	s.T().Setenv(EnvMetricsAddr, ":9100")
	s.T().Setenv(EnvAutoPlay, "true")

	config := validConfig()
	s.Require().NoError(config.LoadEnv())
	s.Equal("/run/shm", config.ShmDir)
	s.Equal("/run/fifo", config.ChannelDir)
	s.Equal("/var/log/tpc", config.LogDir)
	s.Equal(":9100", config.MetricsAddr)
	s.True(config.AutoPlay)

	s.T().Setenv(EnvAutoPlay, "sometimes")
	s.ErrorIs(config.LoadEnv(), ErrInvalidConfig)
}

func (s *ConfigTestSuite) TestPaths() {
	s.Equal("/tmp/tpc.t.fifo3", channelPath("/tmp", "t", 3))
	s.Equal("logs/t.log", logPath("logs", "t"))
}

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
