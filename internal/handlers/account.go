package handlers

import (
	"net/http"

	"github.com/nv0110/bosstracker/internal/middleware"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/services"
	"github.com/nv0110/bosstracker/internal/weekclock"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Load returns the reconciled account blob, migrating it first if needed.
func (handler *AccountHandler) Load(w http.ResponseWriter, r *http.Request) {
	result, err := handler.accounts.Load(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Save replaces the stored blob with the request body. Pitched items are kept.
func (handler *AccountHandler) Save(w http.ResponseWriter, r *http.Request) {
	var blob models.CurrentBlob
	if !decodeJSON(w, r, &blob) {
		return
	}
	if blob.CurrentWeekKey != "" && !weekclock.IsValidWeekStart(string(blob.CurrentWeekKey)) {
		writeError(w, r, services.ErrInvalidWeekStart)
		return
	}

	if err := handler.accounts.SaveBlob(r.Context(), middleware.GetUserID(r.Context()), &blob); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blob)
}

func (handler *AccountHandler) PurgeLegacy(w http.ResponseWriter, r *http.Request) {
	purged, err := handler.accounts.PurgeLegacy(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"purged": purged})
}

func (handler *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := handler.accounts.DeleteAccount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"weeklyRecords": deleted.WeeklyRecords,
		"userData":      deleted.UserData,
		"tokens":        deleted.Tokens,
	})
}
