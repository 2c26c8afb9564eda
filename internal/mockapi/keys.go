package mockapi

import (
	"context"

	"github.com/tiendactl/tiendactl/internal/model"
)

func contextWithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func userFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}
