package service_test

import (
	"context"
	"time"

	"github.com/okian/posecom/internal/domain/estimator"
	"github.com/okian/posecom/internal/domain/types"
	"github.com/okian/posecom/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func detectionRequest(id string, ts float64) types.DetectionRequest {
	est := estimator.NewSynthetic(estimator.WithSeed(7), estimator.WithLatencyRange(0, 0))
	res, err := est.Estimate(context.Background(), estimator.Frame{Timestamp: ts, Width: 640, Height: 480})
	if err != nil {
		panic(err)
	}
	return types.NewDetectionRequest(id, ts, res.Image, res.World)
}

func videoRequest() types.CreateSessionRequest {
	return types.CreateSessionRequest{
		MediaRequest: types.MediaRequest{Kind: "video", FPS: 10, Duration: 2, Width: 640, Height: 480},
	}
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
