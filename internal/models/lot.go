package models

import "time"

// SortDirection is one of the tri-state sort toggles on the ledger grid.
type SortDirection string

const (
	SortAsc     SortDirection = "asc"
	SortDesc    SortDirection = "desc"
	SortDefault SortDirection = "default"
)

// Valid reports whether the direction is a supported value. An empty string is
// accepted and treated as default so omitted query params behave.
func (d SortDirection) Valid() bool {
	switch d {
	case SortAsc, SortDesc, SortDefault, "":
		return true
	default:
		return false
	}
}

// Active reports whether the toggle selects an explicit ordering.
func (d SortDirection) Active() bool {
	return d == SortAsc || d == SortDesc
}

// LotSort mirrors the grid's four sortable columns. At most one may be active;
// with none active the ledger orders by unique id ascending.
type LotSort struct {
	UniqueID   SortDirection `json:"uniqueId"`
	Date       SortDirection `json:"date"`
	PolishDate SortDirection `json:"polishDate"`
	HPHTDate   SortDirection `json:"hphtDate"`
}

// DiamondLot is one polishable parcel tracked through issue, polish, HPHT and
// payment stages. Optional stages stay nil until recorded.
type DiamondLot struct {
	ID              string     `db:"id" json:"id"`
	PartyID         string     `db:"party_id" json:"partyId"`
	Date            time.Time  `db:"date" json:"date"`
	UniqueID        int64      `db:"unique_id" json:"uniqueId"`
	KapanNumber     string     `db:"kapan_number" json:"kapanNumber"`
	PKTNumber       string     `db:"pkt_number" json:"pktNumber"`
	IssueWeight     float64    `db:"issue_weight" json:"issueWeight"`
	ExpectedWeight  float64    `db:"expected_weight" json:"expectedWeight"`
	PolishWeight    *float64   `db:"polish_weight" json:"polishWeight,omitempty"`
	HPHTWeight      *float64   `db:"hpht_weight" json:"hphtWeight,omitempty"`
	ShapeID         string     `db:"shape_id" json:"shapeId"`
	ColorID         *string    `db:"color_id" json:"colorId,omitempty"`
	ClarityID       *string    `db:"clarity_id" json:"clarityId,omitempty"`
	StatusID        *string    `db:"status_id" json:"statusId,omitempty"`
	PaymentStatusID *string    `db:"payment_status_id" json:"paymentStatusId,omitempty"`
	PolishDate      *time.Time `db:"polish_date" json:"polishDate,omitempty"`
	HPHTDate        *time.Time `db:"hpht_date" json:"hphtDate,omitempty"`
	Rate            *float64   `db:"rate" json:"rate,omitempty"`
	Amount          *float64   `db:"amount" json:"amount,omitempty"`
	Remark          *string    `db:"remark" json:"remark,omitempty"`
	CreatedBy       *string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// LotRecord extends a lot with the display names of its references.
type LotRecord struct {
	DiamondLot
	PartyName         string  `db:"party_name" json:"partyName"`
	ShapeName         *string `db:"shape_name" json:"shapeName,omitempty"`
	ColorName         *string `db:"color_name" json:"colorName,omitempty"`
	ClarityName       *string `db:"clarity_name" json:"clarityName,omitempty"`
	StatusName        *string `db:"status_name" json:"statusName,omitempty"`
	PaymentStatusName *string `db:"payment_status_name" json:"paymentStatusName,omitempty"`
}

// LotFilter scopes ledger list queries. The id slices come from the filter
// panel's multi-selects; Search matches the unique id.
type LotFilter struct {
	Sort             LotSort
	PartyIDs         []string
	StatusIDs        []string
	PaymentStatusIDs []string
	KapanNumbers     []string
	Search           string
	StartDate        *time.Time
	EndDate          *time.Time
	Page             int
	Record           int
}

// LotItemInput is one line of the add-lot form. Each item becomes one lot
// under the form's party and kapan number.
type LotItemInput struct {
	PKTNumber      string    `json:"pktNumber"`
	IssueWeight    float64   `json:"issueWeight"`
	ExpectedWeight float64   `json:"expectedWeight"`
	ShapeID        string    `json:"shapeId"`
	Date           time.Time `json:"date"`
}

// LotTotals carries aggregates computed over the whole filtered selection.
type LotTotals struct {
	TotalItems          int     `db:"total_items" json:"totalItems"`
	TotalIssueWeight    float64 `db:"total_issue_weight" json:"totalIssueWeight"`
	TotalExpectedWeight float64 `db:"total_expected_weight" json:"totalExpectedWeight"`
	TotalPolishWeight   float64 `db:"total_polish_weight" json:"totalPolishWeight"`
	TotalHphtWeight     float64 `db:"total_hpht_weight" json:"totalHphtWeight"`
	TotalAmount         float64 `db:"total_amount" json:"totalAmount"`
}

// LotPage is the ledger list payload: one page of rows plus selection-wide totals.
type LotPage struct {
	Data []LotRecord `json:"data"`
	LotTotals
	TotalPages int `json:"totalPages"`
}
