package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainvehicles "driveshare/internal/domain/vehicles"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{col: db.Collection("agg_vehicle")}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicles.VehicleID) (*domainvehicles.Vehicle, error) {
	var doc vehicleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainvehicles.ErrVehicleNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *domainvehicles.Vehicle) error {
	doc := newVehicleDocument(v)
	filter := bson.M{"_id": doc.ID, "version": v.Version}
	doc.Version = v.Version + 1
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
	v.Version = doc.Version
	return nil
}

func (r *VehicleRepository) Search(ctx context.Context, params domainvehicles.SearchParams) (domainvehicles.SearchResult, error) {
	params = params.Normalized()
	filter := bson.M{}
	if params.OnlyActive {
		filter["state"] = string(domainvehicles.VehicleActive)
	} else if len(params.States) > 0 {
		states := make([]string, 0, len(params.States))
		for _, s := range params.States {
			states = append(states, string(s))
		}
		filter["state"] = bson.M{"$in": states}
	}
	if params.Host != "" {
		filter["host_id"] = string(params.Host)
	}
	if params.City != "" {
		filter["address.city"] = primitive.Regex{Pattern: "^" + params.City + "$", Options: "i"}
	}
	if params.Country != "" {
		filter["address.country"] = primitive.Regex{Pattern: "^" + params.Country + "$", Options: "i"}
	}
	if len(params.Classes) > 0 {
		filter["class"] = bson.M{"$in": params.Classes}
	}
	if len(params.Tags) > 0 {
		filter["tags"] = bson.M{"$all": params.Tags}
	}
	if params.MinSeats > 0 {
		filter["seats"] = bson.M{"$gte": params.MinSeats}
	}
	price := bson.M{}
	if params.PriceMinCents > 0 {
		price["$gte"] = params.PriceMinCents
	}
	if params.PriceMaxCents > 0 {
		price["$lte"] = params.PriceMaxCents
	}
	if len(price) > 0 {
		filter["daily_rate_cents"] = price
	}
	if !params.AvailableFrom.IsZero() {
		filter["available_from"] = bson.M{"$lte": params.AvailableFrom.UTC().UnixMilli()}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainvehicles.SearchResult{}, err
	}

	opts := options.Find().
		SetSort(sortSpec(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return domainvehicles.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	result := domainvehicles.SearchResult{Total: int(total)}
	for cursor.Next(ctx) {
		var doc vehicleDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainvehicles.SearchResult{}, err
		}
		result.Items = append(result.Items, doc.toAggregate())
	}
	return result, cursor.Err()
}

func sortSpec(sort domainvehicles.CatalogSort) bson.D {
	switch sort {
	case domainvehicles.SortByPriceDesc:
		return bson.D{{Key: "daily_rate_cents", Value: -1}}
	case domainvehicles.SortByRating:
		return bson.D{{Key: "rating", Value: -1}}
	case domainvehicles.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "daily_rate_cents", Value: 1}}
	}
}

type vehicleAddressDocument struct {
	Line1   string  `bson:"line1"`
	City    string  `bson:"city"`
	Country string  `bson:"country"`
	Lat     float64 `bson:"lat"`
	Lon     float64 `bson:"lon"`
}

type vehicleDocument struct {
	ID                  string                 `bson:"_id"`
	HostID              string                 `bson:"host_id"`
	Title               string                 `bson:"title"`
	Description         string                 `bson:"description"`
	Make                string                 `bson:"make"`
	Model               string                 `bson:"model"`
	Year                int                    `bson:"year"`
	Plate               string                 `bson:"plate"`
	Class               string                 `bson:"class"`
	Seats               int                    `bson:"seats"`
	Transmission        string                 `bson:"transmission"`
	Address             vehicleAddressDocument `bson:"address"`
	Currency            string                 `bson:"currency"`
	DailyRateCents      int64                  `bson:"daily_rate_cents"`
	WeeklyTotalCents    int64                  `bson:"weekly_total_cents"`
	MonthlyTotalCents   int64                  `bson:"monthly_total_cents"`
	InsuranceDailyCents int64                  `bson:"insurance_daily_cents"`
	MinTripDays         int                    `bson:"min_trip_days"`
	Approval            string                 `bson:"approval"`
	State               string                 `bson:"state"`
	Tags                []string               `bson:"tags"`
	Rating              float64                `bson:"rating"`
	Photos              []string               `bson:"photos"`
	AvailableFrom       int64                  `bson:"available_from"`
	CreatedAt           int64                  `bson:"created_at"`
	UpdatedAt           int64                  `bson:"updated_at"`
	Version             int64                  `bson:"version"`
}

func newVehicleDocument(v *domainvehicles.Vehicle) vehicleDocument {
	return vehicleDocument{
		ID:     string(v.ID),
		HostID: string(v.Host),
		Title:  v.Title, Description: v.Description,
		Make: v.Make, Model: v.Model, Year: v.Year,
		Plate: v.Plate, Class: v.Class, Seats: v.Seats,
		Transmission: v.Transmission,
		Address: vehicleAddressDocument{
			Line1: v.Address.Line1, City: v.Address.City, Country: v.Address.Country,
			Lat: v.Address.Lat, Lon: v.Address.Lon,
		},
		Currency:            v.Currency,
		DailyRateCents:      v.DailyRateCents,
		WeeklyTotalCents:    v.WeeklyTotalCents,
		MonthlyTotalCents:   v.MonthlyTotalCents,
		InsuranceDailyCents: v.InsuranceDailyCents,
		MinTripDays:         v.MinTripDays,
		Approval:            string(v.Approval),
		State:               string(v.State),
		Tags:                v.Tags,
		Rating:              v.Rating,
		Photos:              v.Photos,
		AvailableFrom:       v.AvailableFrom.UTC().UnixMilli(),
		CreatedAt:           v.CreatedAt.UnixMilli(),
		UpdatedAt:           v.UpdatedAt.UnixMilli(),
		Version:             v.Version,
	}
}

func (d vehicleDocument) toAggregate() *domainvehicles.Vehicle {
	return &domainvehicles.Vehicle{
		ID:           domainvehicles.VehicleID(d.ID),
		Host:         domainvehicles.HostID(d.HostID),
		Title:        d.Title,
		Description:  d.Description,
		Make:         d.Make,
		Model:        d.Model,
		Year:         d.Year,
		Plate:        d.Plate,
		Class:        d.Class,
		Seats:        d.Seats,
		Transmission: d.Transmission,
		Address: domainvehicles.Address{
			Line1: d.Address.Line1, City: d.Address.City, Country: d.Address.Country,
			Lat: d.Address.Lat, Lon: d.Address.Lon,
		},
		Currency:            d.Currency,
		DailyRateCents:      d.DailyRateCents,
		WeeklyTotalCents:    d.WeeklyTotalCents,
		MonthlyTotalCents:   d.MonthlyTotalCents,
		InsuranceDailyCents: d.InsuranceDailyCents,
		MinTripDays:         d.MinTripDays,
		Approval:            domainvehicles.ApprovalPolicy(d.Approval),
		State:               domainvehicles.State(d.State),
		Tags:                d.Tags,
		Rating:              d.Rating,
		Photos:              d.Photos,
		AvailableFrom:       timestampToTime(d.AvailableFrom),
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
