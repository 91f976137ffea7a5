package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly    Schedule = "weekly"
	Monthly   Schedule = "monthly"
	Quarterly Schedule = "quarterly"
	Yearly    Schedule = "yearly"
	Custom    Schedule = "custom"
)

const (
	PaymentUnique    PaymentType = "unique"
	PaymentRecurrent PaymentType = "recurrent"
)

const (
	BillActive   BillStatus = "active"
	BillArchived BillStatus = "archived"
)

const (
	InstanceDraft     InstanceStatus = "draft"
	InstancePending   InstanceStatus = "pending"
	InstancePaid      InstanceStatus = "paid"
	InstanceCancelled InstanceStatus = "cancelled"
)

const (
	ResidenceActive   ResidenceStatus = "active"
	ResidenceInactive ResidenceStatus = "inactive"
)

// Bill categories form a closed set; the ledger maps them onto expense
// categories with a fixed lookup table.
const (
	CategoryElectricity BillCategory = "electricity"
	CategoryWater       BillCategory = "water"
	CategoryGas         BillCategory = "gas"
	CategoryCleaning    BillCategory = "cleaning"
	CategoryMaintenance BillCategory = "maintenance"
	CategoryInsurance   BillCategory = "insurance"
	CategorySecurity    BillCategory = "security"
	CategoryManagement  BillCategory = "management"
	CategoryTaxes       BillCategory = "taxes"
	CategoryOther       BillCategory = "other"
)

type (
	Schedule        string
	PaymentType     string
	BillStatus      string
	InstanceStatus  string
	ResidenceStatus string
	BillCategory    string

	// MonthDay is one calendar day of a custom schedule, replicated
	// across every year of the generation window.
	MonthDay struct {
		Month int `json:"month"`
		Day   int `json:"day"`
	}

	Building struct {
		ID               int64
		Name             string
		ConstructionDate time.Time // zero when unknown
	}

	Residence struct {
		ID         int64
		BuildingID int64
		Unit       string
		MonthlyFee Money
		Status     ResidenceStatus
	}

	// Bill is a billable obligation template. Recurrent bills are expanded
	// into BillInstance rows and projected into the money-flow ledger.
	Bill struct {
		ID          int64
		BuildingID  int64
		Number      string
		Title       string
		Category    BillCategory
		PaymentType PaymentType
		Schedule    Schedule
		CustomDates []MonthDay // non-empty iff Schedule == Custom
		Costs       []Money    // ordered; length is the installment split count
		Total       Money
		StartDate   time.Time
		EndDate     time.Time // zero when open-ended
		Status      BillStatus
	}

	// BillInstance is one concrete future-dated bill materialized from a
	// recurrent template. Instances are created in bulk and removed only by
	// an explicit cascade from their parent.
	BillInstance struct {
		ID           int64
		ParentBillID int64
		BuildingID   int64
		Number       string // unique per parent+period+part
		Title        string
		Amount       Money
		DueDate      time.Time
		Status       InstanceStatus
		Notes        string
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrDuplicateGeneration = errors.New("instances already generated for bill")
	ErrBusy                = errors.New("a run is already in progress")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyTitle          = errors.New("empty title")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrMissingCustomDates  = errors.New("custom schedule requires custom dates")
	ErrInvalidCategory     = errors.New("invalid category")
)

var billCategories = map[BillCategory]struct{}{
	CategoryElectricity: {}, CategoryWater: {}, CategoryGas: {},
	CategoryCleaning: {}, CategoryMaintenance: {}, CategoryInsurance: {},
	CategorySecurity: {}, CategoryManagement: {}, CategoryTaxes: {},
	CategoryOther: {},
}

func (md MonthDay) Validate() error {
	if md.Month < 1 || md.Month > 12 {
		return errors.New("invalid month")
	}
	if md.Day < 1 || md.Day > 31 {
		return errors.New("invalid day")
	}
	return nil
}

// Date materializes the month/day pair in the given year, clamping the day
// to the last valid day of the month.
func (md MonthDay) Date(year int) time.Time {
	day := md.Day
	if last := DaysInMonth(year, time.Month(md.Month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(md.Month), day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Title)) == 0 {
		return ErrEmptyTitle
	}
	if _, ok := billCategories[b.Category]; !ok {
		return ErrInvalidCategory
	}
	if b.Total.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(b.Costs) == 0 {
		return ErrInvalidAmount
	}
	for _, c := range b.Costs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if b.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return errors.New("end date must not precede start date")
	}
	switch b.PaymentType {
	case PaymentUnique:
		// Unique bills ignore schedule and custom dates entirely.
		return nil
	case PaymentRecurrent:
	default:
		return errors.New("invalid payment type")
	}
	switch b.Schedule {
	case Weekly, Monthly, Quarterly, Yearly:
		if len(b.CustomDates) > 0 {
			return errors.New("custom dates are only valid for custom schedule")
		}
	case Custom:
		if len(b.CustomDates) == 0 {
			return ErrMissingCustomDates
		}
		for _, md := range b.CustomDates {
			if err := md.Validate(); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidSchedule
	}
	return nil
}

// Recurrent reports whether the bill may be expanded into future instances.
func (b Bill) Recurrent() bool {
	return b.PaymentType == PaymentRecurrent
}

// Frozen reports whether a generated instance must not be touched by
// template edits or unpaid-only cascades.
func (bi BillInstance) Frozen() bool {
	return bi.Status == InstancePaid || bi.Status == InstanceCancelled
}
