package application

import "github.com/rnrl/tradecore/internal/platform/apierr"

func errInvalidRoom() error {
	return apierr.Validation("INVALID_ROOM", "room id is malformed")
}

func errNotAuthorized() error {
	return apierr.Authorization("ROOM_NOT_AUTHORIZED", "actor is neither a participant nor an authorized supervisor of this room")
}
