package authctx

import "github.com/google/uuid"

func genCorrelationID() string {
	return uuid.NewString()
}
