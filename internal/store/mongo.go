package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// geoReport is a report as stored in the geo-report collection, using the
// geo vocabulary (draft | submitted | approved | rejected). StatusDetail
// keeps the canonical status the geo vocabulary folds away.
type geoReport struct {
	ID           int64     `bson:"_id"`
	Title        string    `bson:"title"`
	Note         string    `bson:"note"`
	Category     string    `bson:"category"`
	Status       string    `bson:"status"`
	StatusDetail string    `bson:"status_detail,omitempty"`
	Priority     string    `bson:"priority"`
	Lat          float64   `bson:"lat"`
	Lng          float64   `bson:"lng"`
	AreaLabel    string    `bson:"area_label,omitempty"`
	AssignedTo   *string   `bson:"assigned_to,omitempty"`
	Tags         []string  `bson:"tags"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toGeo(r models.Report) geoReport {
	return geoReport{
		ID:           r.ID,
		Title:        r.Title,
		Note:         r.Description,
		Category:     r.Category,
		Status:       models.GeoStatus(r.Status),
		StatusDetail: string(r.Status),
		Priority:     string(r.Priority),
		Lat:          r.Location.Lat,
		Lng:          r.Location.Lng,
		AreaLabel:    r.Location.Name,
		AssignedTo:   r.AssignedTo,
		Tags:         nonNilTags(r.Tags),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (g geoReport) toReport() (models.Report, error) {
	status, err := readStatus(g.StatusDetail, g.Status, models.StatusFromGeo)
	if err != nil {
		return models.Report{}, err
	}
	priority, err := models.ParsePriority(g.Priority)
	if err != nil {
		priority = models.PriorityMedium
	}
	return models.Report{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Note,
		Category:    g.Category,
		Status:      status,
		Priority:    priority,
		Location:    models.Location{Lat: g.Lat, Lng: g.Lng, Name: g.AreaLabel},
		AssignedTo:  g.AssignedTo,
		Tags:        g.Tags,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}, nil
}

// MongoReports is the geo-report store. IDs are derived from the creation
// timestamp in milliseconds, bumped past the current maximum.
type MongoReports struct {
	col    *mongo.Collection
	client *mongo.Client
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewMongoReports wraps the reports collection of db.
func NewMongoReports(client *mongo.Client, db *mongo.Database, logger *zap.SugaredLogger) *MongoReports {
	return &MongoReports{col: db.Collection("reports"), client: client, logger: logger, now: time.Now}
}

func (m *MongoReports) List(ctx context.Context) ([]models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Report, 0)
	for cur.Next(ctx) {
		var doc geoReport
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		r, err := doc.toReport()
		if err != nil {
			m.logger.Warnw("Skipping unreadable geo report", "id", doc.ID, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

func (m *MongoReports) Get(ctx context.Context, id int64) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc geoReport
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find report %d: %w", id, err)
	}
	r, err := doc.toReport()
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", id, err)
	}
	return &r, nil
}

func (m *MongoReports) maxID(ctx context.Context) (int64, error) {
	var doc struct {
		ID int64 `bson:"_id"`
	}
	err := m.col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	return doc.ID, err
}

// Insert retries with the next id when two inserts race for the same millisecond.
func (m *MongoReports) Insert(ctx context.Context, r *models.Report) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	max, err := m.maxID(ctx)
	if err != nil {
		return fmt.Errorf("read max report id: %w", err)
	}
	id := m.now().UnixMilli()
	if id <= max {
		id = max + 1
	}
	for attempt := 0; attempt < 5; attempt++ {
		r.ID = id
		_, err = m.col.InsertOne(ctx, toGeo(*r))
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert report: %w", err)
		}
		id++
	}
	return fmt.Errorf("insert report: %w", err)
}

func (m *MongoReports) Save(ctx context.Context, r models.Report) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": r.ID}, toGeo(r))
	if err != nil {
		return fmt.Errorf("replace report %d: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("report %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

func (m *MongoReports) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete report %d: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoReports) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}
