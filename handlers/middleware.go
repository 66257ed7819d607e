package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

const ActiveCompanyKey contextKey = "activeCompany"

// ActiveCompany identifies the company a request operates under.
type ActiveCompany struct {
	ID       string
	Name     string
	Country  string
	Currency string
}

// GetActiveCompany extracts the active company from the request context.
func GetActiveCompany(r *http.Request) *ActiveCompany {
	if val, ok := r.Context().Value(ActiveCompanyKey).(*ActiveCompany); ok {
		return val
	}
	return nil
}

// requestCompanyID resolves the company a request operates on: the
// companyId path parameter when present, otherwise the company carried
// by the active_company cookie.
func requestCompanyID(e *core.RequestEvent) string {
	if id := e.Request.PathValue("companyId"); id != "" {
		return id
	}
	if active := GetActiveCompany(e.Request); active != nil {
		return active.ID
	}
	return ""
}

// ActiveCompanyMiddleware reads the "active_company" cookie, loads the
// company record, and stores it in the request context so handlers can
// resolve catalogs and tiers without a company path parameter.
func ActiveCompanyMiddleware(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var active *ActiveCompany

		cookie, err := e.Request.Cookie("active_company")
		if err == nil && cookie.Value != "" {
			rec, err := app.FindRecordById("companies", cookie.Value)
			if err == nil {
				active = &ActiveCompany{
					ID:       rec.Id,
					Name:     rec.GetString("name"),
					Country:  rec.GetString("country"),
					Currency: rec.GetString("currency"),
				}
			} else {
				log.Printf("middleware: active company %s not found, clearing cookie", cookie.Value)
				http.SetCookie(e.Response, &http.Cookie{
					Name:   "active_company",
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
			}
		}

		ctx := context.WithValue(e.Request.Context(), ActiveCompanyKey, active)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}
