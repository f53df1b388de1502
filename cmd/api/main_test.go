package main

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type recordingServer struct {
	order *[]string
}

func (s *recordingServer) Shutdown(context.Context) error {
	*s.order = append(*s.order, "server")
	return nil
}

type recordingSessions struct {
	order *[]string
}

func (s *recordingSessions) ReleaseAll() {
	*s.order = append(*s.order, "sessions")
}

func TestShutdownReleasesSessionsBeforeSignalingDone(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var order []string
	done := make(chan struct{})
	shutdown(logger, &recordingServer{order: &order}, &recordingSessions{order: &order}, done)

	select {
	case <-done:
	default:
		t.Fatal("done not closed after shutdown returned")
	}
	assert.Equal(t, []string{"server", "sessions"}, order)
}
