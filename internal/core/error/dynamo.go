package errx

import (
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// WrapDynamo maps DynamoDB errors to AppError. Throughput and internal
// server errors are reported as provider unavailability.
func WrapDynamo(err error) error {
	if err == nil {
		return nil
	}

	var throttled *types.ProvisionedThroughputExceededException
	var internal *types.InternalServerError
	if errors.As(err, &throttled) || errors.As(err, &internal) {
		return &AppError{Err: err, Status: http.StatusServiceUnavailable, Kind: KindStorage, Message: DynamoErrorMessage}
	}

	return &AppError{Err: err, Status: http.StatusBadGateway, Kind: KindStorage, Message: DynamoErrorMessage}
}
