package contact_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/calagent/internal/contacts"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/tools/common"
)

const GetEmailFailure = "Sorry, I couldn't look up that contact."

// GetEmailArgs are the arguments of get_email.
type GetEmailArgs struct {
	Name string `json:"name" jsonschema_description:"Full or partial name of the person"`
}

// RegisterContactTools adds get_email to reg.
func RegisterContactTools(reg *common.Registry, sc *server.ServerContext) error {
	return reg.Add(common.Instrumented(common.Tool{
		Name:           "get_email",
		Description:    "Find the email address of a person by name, from the user's contacts, other contacts and company directory.",
		InputSchema:    common.GenerateSchema[GetEmailArgs](),
		FailureMessage: GetEmailFailure,
		Service:        instrumentation.ServicePeople,
		Operation:      instrumentation.OperationLookup,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			return handleGetEmail(ctx, args, sc)
		},
	}, sc))
}

func handleGetEmail(ctx context.Context, raw json.RawMessage, sc *server.ServerContext) (string, error) {
	args, err := common.DecodeArgs[GetEmailArgs](raw)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return "", errors.New("name is required")
	}

	resolver, err := sc.ContactResolver()
	if err != nil {
		return "", err
	}
	contact, err := resolver.Lookup(ctx, name)
	if errors.Is(err, contacts.ErrNotFound) {
		return fmt.Sprintf("No email address found for %s.", name), nil
	}
	if err != nil {
		return "", err
	}
	sc.Logger().Debug("contact resolved", logging.Tool("get_email"), logging.UserHash(contact.Email))

	if contact.Name == "" || strings.EqualFold(contact.Name, contact.Email) {
		return contact.Email, nil
	}
	return fmt.Sprintf("%s <%s>", contact.Name, contact.Email), nil
}
