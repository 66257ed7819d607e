package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

type planForm struct {
	Name string `json:"name" form:"name"`
}

type calibrateForm struct {
	Point1       services.Point `json:"point1" form:"point1"`
	Point2       services.Point `json:"point2" form:"point2"`
	RealDistance float64        `json:"real_distance" form:"real_distance"`
}

// HandlePlanCreate registers a digitized plan on a project.
// Route: POST /api/projects/{projectId}/plans
func HandlePlanCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}

		var form planForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.Name == "" {
			return apiError(e, http.StatusBadRequest, "Plan name is required")
		}

		plansCol, err := app.FindCollectionByNameOrId("project_plans")
		if err != nil {
			log.Printf("plan_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		plan := core.NewRecord(plansCol)
		plan.Set("project", projectID)
		plan.Set("name", form.Name)
		plan.Set("is_calibrated", false)
		if err := app.Save(plan); err != nil {
			log.Printf("plan_create: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save plan")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"id":            plan.Id,
			"name":          plan.GetString("name"),
			"is_calibrated": false,
		})
	}
}

// HandlePlanCalibrate derives a plan's scale factor from two reference
// points and the known distance between them, then recomputes the
// measures of every room digitized on the plan.
// Route: POST /api/plans/{planId}/calibrate
func HandlePlanCalibrate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		plan, err := app.FindRecordById("project_plans", e.Request.PathValue("planId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Plan not found")
		}

		var form calibrateForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.RealDistance <= 0 {
			return apiError(e, http.StatusBadRequest, "Real distance must be positive")
		}

		scale, err := services.DeriveScale(form.Point1, form.Point2, form.RealDistance)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCalibration) {
				return apiError(e, http.StatusBadRequest, "Calibration points must not coincide")
			}
			log.Printf("plan_calibrate: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		plan.Set("scale_factor", scale)
		plan.Set("is_calibrated", true)
		plan.Set("calibration_data", map[string]any{
			"point1":        form.Point1,
			"point2":        form.Point2,
			"real_distance": form.RealDistance,
		})
		if err := app.Save(plan); err != nil {
			log.Printf("plan_calibrate: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save calibration")
		}

		recomputed, err := recomputePlanRooms(app, plan.Id, scale)
		if err != nil {
			log.Printf("plan_calibrate: recompute rooms: %v", err)
			return apiError(e, http.StatusInternalServerError, "Calibration saved but room recompute failed")
		}

		return apiOK(e, map[string]any{
			"id":               plan.Id,
			"scale_factor":     scale,
			"is_calibrated":    true,
			"rooms_recomputed": recomputed,
		})
	}
}

// recomputePlanRooms re-derives area and perimeter of every room on a
// plan from its stored polygon and the new scale.
func recomputePlanRooms(app *pocketbase.PocketBase, planID string, scale float64) (int, error) {
	rooms, err := app.FindRecordsByFilter(
		"rooms",
		"plan = {:plan}",
		"",
		0,
		0,
		map[string]any{"plan": planID},
	)
	if err != nil {
		return 0, err
	}

	recomputed := 0
	for _, room := range rooms {
		var polygon []services.Point
		if err := room.UnmarshalJSONField("polygon", &polygon); err != nil || len(polygon) == 0 {
			continue
		}
		room.Set("area", services.PolygonArea(polygon, scale).InexactFloat64())
		room.Set("perimeter", services.PolygonPerimeter(polygon, scale).InexactFloat64())
		if err := app.Save(room); err != nil {
			return recomputed, err
		}
		recomputed++
	}
	return recomputed, nil
}
