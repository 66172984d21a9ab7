package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "driveshare/internal/domain/booking"
	domainpricing "driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/money"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("agg_reservation")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, reservation *domainbooking.Reservation) error {
	doc := newReservationDocument(reservation)
	filter := bson.M{"_id": doc.ID, "version": reservation.Version}
	doc.Version = reservation.Version + 1
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
	reservation.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"renter_id": renterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReservations(ctx, cursor)
}

func (r *ReservationRepository) ListActiveByVehicle(ctx context.Context, vehicleID domainvehicles.VehicleID) ([]*domainbooking.Reservation, error) {
	filter := bson.M{
		"vehicle_id": string(vehicleID),
		"status":     bson.M{"$ne": string(domainbooking.StatusCancelled)},
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeReservations(ctx, cursor)
}

func decodeReservations(ctx context.Context, cursor *mongo.Cursor) ([]*domainbooking.Reservation, error) {
	var out []*domainbooking.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type quoteDocument struct {
	Days          int           `bson:"days"`
	Tier          string        `bson:"tier"`
	EffectiveRate moneyDocument `bson:"effective_rate"`
	Subtotal      moneyDocument `bson:"subtotal"`
	OriginalCost  moneyDocument `bson:"original_cost"`
	Savings       moneyDocument `bson:"savings"`
	InsuranceFee  moneyDocument `bson:"insurance_fee"`
	ServiceFee    moneyDocument `bson:"service_fee"`
	Total         moneyDocument `bson:"total"`
	DiscountLabel string        `bson:"discount_label"`
}

type windowDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type reservationDocument struct {
	ID        string         `bson:"_id"`
	VehicleID string         `bson:"vehicle_id"`
	RenterID  string         `bson:"renter_id"`
	Window    windowDocument `bson:"window"`
	Insurance string         `bson:"insurance"`
	Price     quoteDocument  `bson:"price"`
	Status    string         `bson:"status"`
	CreatedAt int64          `bson:"created_at"`
	UpdatedAt int64          `bson:"updated_at"`
	Version   int64          `bson:"version"`
}

func newReservationDocument(r *domainbooking.Reservation) reservationDocument {
	return reservationDocument{
		ID:        string(r.ID),
		VehicleID: string(r.VehicleID),
		RenterID:  r.RenterID,
		Window:    windowDocument{Start: r.Window.Start.UnixMilli(), End: r.Window.End.UnixMilli()},
		Insurance: string(r.Insurance),
		Price: quoteDocument{
			Days:          r.Price.Days,
			Tier:          string(r.Price.Tier),
			EffectiveRate: newMoneyDocument(r.Price.EffectiveRate),
			Subtotal:      newMoneyDocument(r.Price.Subtotal),
			OriginalCost:  newMoneyDocument(r.Price.OriginalCost),
			Savings:       newMoneyDocument(r.Price.Savings),
			InsuranceFee:  newMoneyDocument(r.Price.InsuranceFee),
			ServiceFee:    newMoneyDocument(r.Price.ServiceFee),
			Total:         newMoneyDocument(r.Price.Total),
			DiscountLabel: r.Price.DiscountLabel,
		},
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
		Version:   r.Version,
	}
}

func (d reservationDocument) toAggregate() *domainbooking.Reservation {
	return &domainbooking.Reservation{
		ID:        domainbooking.ReservationID(d.ID),
		VehicleID: domainvehicles.VehicleID(d.VehicleID),
		RenterID:  d.RenterID,
		Window:    timewindow.Window{Start: timestampToTime(d.Window.Start), End: timestampToTime(d.Window.End)},
		Insurance: domainbooking.InsuranceTier(d.Insurance),
		Price: domainpricing.Quote{
			Days:          d.Price.Days,
			Tier:          domainpricing.Tier(d.Price.Tier),
			EffectiveRate: d.Price.EffectiveRate.toMoney(),
			Subtotal:      d.Price.Subtotal.toMoney(),
			OriginalCost:  d.Price.OriginalCost.toMoney(),
			Savings:       d.Price.Savings.toMoney(),
			InsuranceFee:  d.Price.InsuranceFee.toMoney(),
			ServiceFee:    d.Price.ServiceFee.toMoney(),
			Total:         d.Price.Total.toMoney(),
			DiscountLabel: d.Price.DiscountLabel,
		},
		Status:    domainbooking.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}
