package estimator

import "errors"

// ErrEstimationFailed reports a failed inference call.
var ErrEstimationFailed = errors.New("pose estimation failed")
