package sessiondb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/strataxr/anchord/internal/session"
)

// Recorder persists drained scene deltas. It runs on the drain pump
// goroutine, never inside the session loop, so slow disks cannot
// stall placement decisions.
type Recorder struct {
	db *DB
}

// NewRecorder creates a recorder over the given database.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

// planePayload is the JSON stored alongside plane lifecycle events.
type planePayload struct {
	Center [3]float64 `json:"center"`
	Extent [2]float64 `json:"extent"`
	Normal [3]float64 `json:"normal"`
}

// RecordDeltas writes one drained batch. Each delta becomes a
// scene_events row; object additions also land in placements for
// structured queries.
func (r *Recorder) RecordDeltas(deltas []session.SceneDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin record batch: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()

	for _, d := range deltas {
		var entityID string
		var payload []byte

		switch d.Kind {
		case session.DeltaPlaneAdded, session.DeltaPlaneUpdated:
			entityID = string(d.PlaneID)
			p := d.Plane
			payload, err = json.Marshal(planePayload{
				Center: [3]float64{p.Center.X, p.Center.Y, p.Center.Z},
				Extent: p.Extent,
				Normal: [3]float64{p.Normal.X, p.Normal.Y, p.Normal.Z},
			})
			if err != nil {
				return fmt.Errorf("encode plane payload: %w", err)
			}
		case session.DeltaPlaneRemoved:
			entityID = string(d.PlaneID)
		case session.DeltaObjectAdded:
			entityID = string(d.ObjectID)
			o := d.Object
			if _, err := tx.Exec(`
				INSERT OR REPLACE INTO placements (
					object_id, kind, size,
					pos_x, pos_y, pos_z,
					quat_w, quat_x, quat_y, quat_z,
					parent_plane_id, recorded_at_ns
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(o.ID), string(o.Kind), o.Size,
				o.Pose.Position.X, o.Pose.Position.Y, o.Pose.Position.Z,
				o.Pose.Orientation.Real, o.Pose.Orientation.Imag,
				o.Pose.Orientation.Jmag, o.Pose.Orientation.Kmag,
				nullString(string(o.ParentPlane)), now,
			); err != nil {
				return fmt.Errorf("insert placement: %w", err)
			}
		case session.DeltaObjectRemoved:
			entityID = string(d.ObjectID)
		}

		if _, err := tx.Exec(`
			INSERT INTO scene_events (kind, entity_id, payload, recorded_at_ns)
			VALUES (?, ?, ?, ?)`,
			string(d.Kind), entityID, nullString(string(payload)), now,
		); err != nil {
			return fmt.Errorf("insert scene event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record batch: %w", err)
	}
	return nil
}

// PlacementCount is one row of the per-kind placement summary.
type PlacementCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// CountPlacements summarises recorded placements by kind.
func (r *Recorder) CountPlacements() ([]PlacementCount, error) {
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM placements GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count placements: %w", err)
	}
	defer rows.Close()

	var out []PlacementCount
	for rows.Next() {
		var c PlacementCount
		if err := rows.Scan(&c.Kind, &c.Count); err != nil {
			return nil, fmt.Errorf("scan placement count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count placements rows: %w", err)
	}
	return out, nil
}

// EventBucket is one time bucket of the activity series.
type EventBucket struct {
	BucketStart time.Time `json:"bucket_start"`
	Kind        string    `json:"kind"`
	Count       int       `json:"count"`
}

// EventActivity returns per-minute counts of scene events by kind,
// oldest first, for the report tooling.
func (r *Recorder) EventActivity() ([]EventBucket, error) {
	rows, err := r.db.Query(`
		SELECT (recorded_at_ns / 60000000000) * 60 AS bucket_secs, kind, COUNT(*)
		FROM scene_events
		GROUP BY bucket_secs, kind
		ORDER BY bucket_secs ASC, kind ASC`)
	if err != nil {
		return nil, fmt.Errorf("event activity: %w", err)
	}
	defer rows.Close()

	var out []EventBucket
	for rows.Next() {
		var bucketSecs int64
		var b EventBucket
		if err := rows.Scan(&bucketSecs, &b.Kind, &b.Count); err != nil {
			return nil, fmt.Errorf("scan event bucket: %w", err)
		}
		b.BucketStart = time.Unix(bucketSecs, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event activity rows: %w", err)
	}
	return out, nil
}

// PlacementRecord is one recorded placement, as stored.
type PlacementRecord struct {
	ObjectID      string
	Kind          string
	Size          float64
	PosX          float64
	PosY          float64
	PosZ          float64
	ParentPlaneID string
}

// ListPlacements returns recorded placements in insertion order.
func (r *Recorder) ListPlacements() ([]PlacementRecord, error) {
	rows, err := r.db.Query(`
		SELECT object_id, kind, size, pos_x, pos_y, pos_z, parent_plane_id
		FROM placements ORDER BY recorded_at_ns ASC, object_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var out []PlacementRecord
	for rows.Next() {
		var p PlacementRecord
		var parent sql.NullString
		if err := rows.Scan(&p.ObjectID, &p.Kind, &p.Size, &p.PosX, &p.PosY, &p.PosZ, &parent); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		if parent.Valid {
			p.ParentPlaneID = parent.String
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list placements rows: %w", err)
	}
	return out, nil
}

// nullString converts empty strings to nil for SQL storage.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
