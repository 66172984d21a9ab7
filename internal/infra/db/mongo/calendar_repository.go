package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "driveshare/internal/domain/availability"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// CalendarRepository stores one document per vehicle holding every block.
// The whole calendar travels as a unit so the version filter on Save gives
// a true compare-and-swap over the block set.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainvehicles.VehicleID) (*domainavailability.VehicleCalendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.VehicleCalendar) error {
	doc := newCalendarDocument(calendar)
	filter := bson.M{"_id": doc.ID, "version": calendar.Version}
	doc.Version = calendar.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	calendar.Version = doc.Version
	return nil
}

type blockDocument struct {
	Window    windowDocument `bson:"window"`
	Reason    string         `bson:"reason"`
	Reference string         `bson:"reference"`
	CreatedAt int64          `bson:"created_at"`
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

func newCalendarDocument(c *domainavailability.VehicleCalendar) calendarDocument {
	doc := calendarDocument{ID: string(c.VehicleID), Version: c.Version}
	for _, block := range c.Blocks {
		doc.Blocks = append(doc.Blocks, blockDocument{
			Window:    windowDocument{Start: block.Window.Start.UnixMilli(), End: block.Window.End.UnixMilli()},
			Reason:    string(block.Reason),
			Reference: block.Reference,
			CreatedAt: block.CreatedAt.UnixMilli(),
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() *domainavailability.VehicleCalendar {
	calendar := &domainavailability.VehicleCalendar{
		VehicleID: domainvehicles.VehicleID(d.ID),
		Version:   d.Version,
	}
	for _, block := range d.Blocks {
		calendar.Blocks = append(calendar.Blocks, domainavailability.Block{
			Window:    timewindow.Window{Start: timestampToTime(block.Window.Start), End: timestampToTime(block.Window.End)},
			Reason:    domainavailability.BlockReason(block.Reason),
			Reference: block.Reference,
			CreatedAt: timestampToTime(block.CreatedAt),
		})
	}
	return calendar
}
