package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/angeloszaimis/inventory-service/internal/apierror"
	"github.com/angeloszaimis/inventory-service/internal/database"
	"github.com/angeloszaimis/inventory-service/internal/request"
)

// filterColumns maps accepted query keys on GET /users to columns.
var filterColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"banner_id":  "banner_id",
	"email":      "email",
}

// Handler serves the users resource. The leading "users" segment has
// already been consumed when Handle is called.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) Handle(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error) {
	seg, ok := req.Pop()
	if !ok {
		return h.collection(ctx, req, conn)
	}

	if rest := req.Remaining(); len(rest) > 0 {
		return nil, apierror.Newf(apierror.KindNotFound, "users/%s/%s not found", seg, strings.Join(rest, "/"))
	}

	id, err := parseID(seg)
	if err != nil {
		return nil, err
	}

	return h.member(ctx, req, conn, id)
}

func (h *Handler) collection(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error) {
	switch req.Method {
	case request.MethodGet:
		filter, err := filterFromQuery(req.Query)
		if err != nil {
			return nil, err
		}
		users, err := List(ctx, conn, filter)
		if err != nil {
			return nil, err
		}
		return marshal(users)

	case request.MethodPost:
		u, err := decodeUser(req.Body)
		if err != nil {
			return nil, err
		}
		if err := u.Save(ctx, conn, false); err != nil {
			return nil, err
		}
		h.logger.Info("Created user", slog.Uint64("id", u.ID))
		return marshal(u)

	default:
		return nil, apierror.Newf(apierror.KindUnsupportedMethod, "%s is not supported on users", req.Method)
	}
}

func (h *Handler) member(ctx context.Context, req *request.Request, conn database.Conn, id uint64) ([]byte, error) {
	switch req.Method {
	case request.MethodGet:
		u := &User{ID: id}
		if err := u.Load(ctx, conn); err != nil {
			return nil, err
		}
		return marshal(u)

	case request.MethodPost:
		u, err := decodeUser(req.Body)
		if err != nil {
			return nil, err
		}
		u.ID = id
		if err := u.Save(ctx, conn, true); err != nil {
			return nil, err
		}
		h.logger.Info("Updated user", slog.Uint64("id", id))
		return marshal(u)

	case request.MethodDelete:
		u := &User{ID: id}
		if err := u.Delete(ctx, conn); err != nil {
			return nil, err
		}
		h.logger.Info("Deleted user", slog.Uint64("id", id))
		return nil, nil

	default:
		return nil, apierror.Newf(apierror.KindUnsupportedMethod, "%s is not supported on users/%d", req.Method, id)
	}
}

type userInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BannerID  uint32  `json:"banner_id"`
	Email     *string `json:"email"`
}

func decodeUser(body string) (*User, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apierror.New(apierror.KindBadRequest, "request body is required")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var in userInput
	if err := dec.Decode(&in); err != nil {
		return nil, apierror.Wrap(apierror.KindBadRequest, "invalid user JSON", err)
	}

	u := &User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		BannerID:  in.BannerID,
		Email:     in.Email,
	}
	if err := u.Validate(); err != nil {
		return nil, apierror.New(apierror.KindBadRequest, err.Error())
	}

	return u, nil
}

func filterFromQuery(pairs []request.Pair) (*Filter, error) {
	filter := &Filter{}
	for _, p := range pairs {
		col, ok := filterColumns[p.Key]
		if !ok {
			return nil, apierror.Newf(apierror.KindBadRequest, "unknown filter %q", p.Key)
		}

		var arg any = p.Value
		if col == "banner_id" {
			n, err := strconv.ParseUint(p.Value, 10, 32)
			if err != nil {
				return nil, apierror.Newf(apierror.KindBadRequest, "invalid banner_id %q", p.Value)
			}
			arg = n
		}

		filter.Where = append(filter.Where, col+" = ?")
		filter.Args = append(filter.Args, arg)
	}

	return filter, nil
}

func parseID(seg string) (uint64, error) {
	id, err := strconv.ParseUint(seg, 10, 64)
	if err != nil || id == 0 {
		return 0, apierror.Newf(apierror.KindBadRequest, "invalid user ID %q", seg)
	}
	return id, nil
}

func marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInternal, "failed encoding response", err)
	}
	return b, nil
}
