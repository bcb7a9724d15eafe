package admin

import (
	"fmt"

	"github.com/larkvale/docdeck/internal/api"
)

// Action describes one mutating administrative command. Destructive actions
// require interactive confirmation before the request is issued; every
// successful action triggers a full reload rather than a local patch.
type Action struct {
	Name        string
	UserAction  api.UserActionName // empty for delete actions
	DeleteUser  bool
	DeleteFile  bool
	Destructive bool
}

var actionCatalog = map[string]Action{
	"verify":    {Name: "verify", UserAction: api.UserVerify},
	"suspend":   {Name: "suspend", UserAction: api.UserSuspend, Destructive: true},
	"unsuspend": {Name: "unsuspend", UserAction: api.UserUnsuspend},
	"allow":     {Name: "allow", UserAction: api.UserEnableUpload},
	"block":     {Name: "block", UserAction: api.UserDisableUpload},
	"deluser":   {Name: "deluser", DeleteUser: true, Destructive: true},
	"delfile":   {Name: "delfile", DeleteFile: true, Destructive: true},
}

// LookupAction resolves a console command name to its action descriptor.
func LookupAction(name string) (Action, bool) {
	a, ok := actionCatalog[name]
	return a, ok
}

// ConfirmPrompt builds the confirmation question for a destructive action.
func (a Action) ConfirmPrompt(target string) string {
	switch {
	case a.DeleteUser:
		return fmt.Sprintf("Delete user %s with all files and chat history? /confirm or /cancel", target)
	case a.DeleteFile:
		return fmt.Sprintf("Delete file %s for all users? /confirm or /cancel", target)
	case a.UserAction == api.UserSuspend:
		return fmt.Sprintf("Suspend user %s? /confirm or /cancel", target)
	default:
		return fmt.Sprintf("Apply %s to %s? /confirm or /cancel", a.Name, target)
	}
}
