package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

type roomForm struct {
	Name          string           `json:"name" form:"name"`
	RoomType      string           `json:"room_type" form:"room_type"`
	Level         *float64         `json:"level" form:"level"`
	CeilingHeight *float64         `json:"ceiling_height" form:"ceiling_height"`
	Plan          string           `json:"plan" form:"plan"`
	Polygon       []services.Point `json:"polygon" form:"polygon"`
}

// HandleRoomCreate digitizes a new room: the posted polygon is measured
// against the plan's scale and the derived area and perimeter are
// cached on the record.
// Route: POST /api/projects/{projectId}/rooms
func HandleRoomCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}

		var form roomForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.Name == "" {
			return apiError(e, http.StatusBadRequest, "Room name is required")
		}

		scale, err := planScale(app, form.Plan)
		if err != nil {
			return apiError(e, http.StatusNotFound, "Plan not found")
		}

		roomsCol, err := app.FindCollectionByNameOrId("rooms")
		if err != nil {
			log.Printf("room_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		room := core.NewRecord(roomsCol)
		room.Set("project", projectID)
		room.Set("name", form.Name)
		room.Set("room_type", form.RoomType)
		if form.Level != nil {
			room.Set("level", *form.Level)
		}
		if form.CeilingHeight != nil {
			room.Set("ceiling_height", *form.CeilingHeight)
		}
		if form.Plan != "" {
			room.Set("plan", form.Plan)
		}
		applyPolygon(room, form.Polygon, scale)

		if err := app.Save(room); err != nil {
			log.Printf("room_create: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save room")
		}

		return e.JSON(http.StatusCreated, roomPayload(room))
	}
}

// HandleRoomUpdate edits a room. When the polygon changes, area and
// perimeter are recomputed from it; a ceiling height change alone
// leaves them untouched.
// Route: PATCH /api/rooms/{roomId}
func HandleRoomUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		room, err := app.FindRecordById("rooms", e.Request.PathValue("roomId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Room not found")
		}

		var form roomForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		if form.Name != "" {
			room.Set("name", form.Name)
		}
		if form.RoomType != "" {
			room.Set("room_type", form.RoomType)
		}
		if form.Level != nil {
			room.Set("level", *form.Level)
		}
		if form.CeilingHeight != nil {
			room.Set("ceiling_height", *form.CeilingHeight)
		}
		if form.Plan != "" {
			room.Set("plan", form.Plan)
		}

		if form.Polygon != nil {
			scale, err := planScale(app, room.GetString("plan"))
			if err != nil {
				return apiError(e, http.StatusNotFound, "Plan not found")
			}
			applyPolygon(room, form.Polygon, scale)
		}

		if err := app.Save(room); err != nil {
			log.Printf("room_update: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save room")
		}

		return apiOK(e, roomPayload(room))
	}
}

// HandleRoomDelete removes a room.
// Route: DELETE /api/rooms/{roomId}
func HandleRoomDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		room, err := app.FindRecordById("rooms", e.Request.PathValue("roomId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Room not found")
		}

		if err := app.Delete(room); err != nil {
			log.Printf("room_delete: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to delete room")
		}

		return apiOK(e, map[string]any{"deleted": room.Id})
	}
}

// HandleRoomList returns a project's rooms with their cached measures.
// Route: GET /api/projects/{projectId}/rooms
func HandleRoomList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}

		rooms, err := app.FindRecordsByFilter(
			"rooms",
			"project = {:project}",
			"created",
			0,
			0,
			map[string]any{"project": projectID},
		)
		if err != nil {
			log.Printf("room_list: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		items := make([]map[string]any, 0, len(rooms))
		for _, r := range rooms {
			items = append(items, roomPayload(r))
		}
		return apiOK(e, map[string]any{"rooms": items})
	}
}

// planScale returns the scale of a plan, or 1.0 for rooms digitized
// without a plan (coordinates already in real-world units).
func planScale(app *pocketbase.PocketBase, planID string) (float64, error) {
	if planID == "" {
		return 1.0, nil
	}
	plan, err := app.FindRecordById("project_plans", planID)
	if err != nil {
		return 0, err
	}
	scale := plan.GetFloat("scale_factor")
	if scale == 0 {
		scale = 1.0
	}
	return scale, nil
}

// applyPolygon stores a room's polygon and its derived measures.
func applyPolygon(room *core.Record, polygon []services.Point, scale float64) {
	if polygon == nil {
		return
	}
	room.Set("polygon", polygon)
	room.Set("area", services.PolygonArea(polygon, scale).InexactFloat64())
	room.Set("perimeter", services.PolygonPerimeter(polygon, scale).InexactFloat64())
}

func roomPayload(room *core.Record) map[string]any {
	return map[string]any{
		"id":             room.Id,
		"name":           room.GetString("name"),
		"room_type":      room.GetString("room_type"),
		"level":          room.GetFloat("level"),
		"ceiling_height": room.GetFloat("ceiling_height"),
		"area":           room.GetFloat("area"),
		"perimeter":      room.GetFloat("perimeter"),
	}
}
