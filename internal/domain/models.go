// Package domain defines the persistence models for the accounting
// assistant: customers and their tax profile, due items, period summaries,
// documents, and the WhatsApp channel records (identity, one-time codes,
// processed-message log). These types are mapped with GORM and form the
// core data layer of the application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the accounting client the assistant answers questions about.
// Minimal placeholder rows are created on first contact (resolve-or-create
// by email or CUIT); the back office fills in the rest later.
//
// TaxID is always stored in the normalized "NN-NNNNNNNN-N" form. Both TaxID
// and Email carry unique indexes so that concurrent first contact by the
// same reference cannot produce duplicate rows.
type Customer struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	LegalName string    `json:"legal_name" gorm:"type:varchar(255);not null;default:'Cliente sin nombre'"`
	TaxID     *string   `json:"tax_id"     gorm:"type:varchar(13);uniqueIndex:ux_customers_tax_id"`
	Email     *string   `json:"email"      gorm:"type:varchar(255);uniqueIndex:ux_customers_email"`
	Phone     *string   `json:"phone"      gorm:"type:varchar(32)"`
	Province  string    `json:"province"   gorm:"type:varchar(64);not null;default:'SIN DEFINIR'"`
	Address   *string   `json:"address"    gorm:"type:varchar(255)"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Tax is a tax the office administers (Monotributo, IVA, IIBB, ...).
type Tax struct {
	ID          int64  `json:"id"          gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name"        gorm:"type:varchar(128);not null"`
	Periodicity string `json:"periodicity" gorm:"type:varchar(32)"` // mensual, anual, ...
}

// TableName returns the database table name for Tax.
func (Tax) TableName() string { return "taxes" }

// TaxAssignment links a customer to a tax they are registered for. The set
// of assignments is what the fiscal-status query reports.
type TaxAssignment struct {
	ID         int64 `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64 `json:"customer_id" gorm:"not null;index;uniqueIndex:ux_assignment_customer_tax,priority:1"`
	TaxID      int64 `json:"tax_id"      gorm:"not null;uniqueIndex:ux_assignment_customer_tax,priority:2"`

	Tax Tax `json:"tax" gorm:"foreignKey:TaxID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TaxAssignment.
func (TaxAssignment) TableName() string { return "tax_assignments" }

// Due item states. Only PENDIENTE items are listed as upcoming; VENCIDO
// items feed the recently-lapsed counter.
const (
	DueStatusPending = "PENDIENTE"
	DueStatusLapsed  = "VENCIDO"
	DueStatusPaid    = "PAGADO"
)

// DueItem is a single tax obligation with a due date (a "vencimiento").
type DueItem struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64     `json:"customer_id" gorm:"not null;index:idx_due_customer_date,priority:1"`
	TaxID      int64     `json:"tax_id"      gorm:"not null"`
	Period     string    `json:"period"      gorm:"type:char(7);not null"` // YYYY-MM
	DueDate    time.Time `json:"due_date"    gorm:"not null;index:idx_due_customer_date,priority:2"`
	Status     string    `json:"status"      gorm:"type:varchar(16);not null;default:'PENDIENTE';check:status IN ('PENDIENTE','VENCIDO','PAGADO')"`

	Tax Tax `json:"tax" gorm:"foreignKey:TaxID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DueItem.
func (DueItem) TableName() string { return "due_items" }

// VATSummary is the pre-aggregated VAT position for one customer/period,
// as produced by the back-office pipeline.
type VATSummary struct {
	ID           int64           `json:"id"           gorm:"primaryKey;autoIncrement"`
	CustomerID   int64           `json:"customer_id"  gorm:"not null;uniqueIndex:ux_vat_customer_period,priority:1"`
	Period       string          `json:"period"       gorm:"type:char(7);not null;uniqueIndex:ux_vat_customer_period,priority:2"`
	LegalName    string          `json:"legal_name"   gorm:"type:varchar(255)"`
	Debit        decimal.Decimal `json:"debit"        gorm:"type:decimal(14,2)"`
	Credit       decimal.Decimal `json:"credit"       gorm:"type:decimal(14,2)"`
	Perceptions  decimal.Decimal `json:"perceptions"  gorm:"type:decimal(14,2)"`
	Withholdings decimal.Decimal `json:"withholdings" gorm:"type:decimal(14,2)"`
	Balance      decimal.Decimal `json:"balance"      gorm:"type:decimal(14,2)"`
	Outcome      string          `json:"outcome"      gorm:"type:varchar(32)"` // "A PAGAR" / "A FAVOR"
}

// TableName returns the database table name for VATSummary.
func (VATSummary) TableName() string { return "vat_summaries" }

// SalesSummary is the aggregated sales figures for one customer/period.
type SalesSummary struct {
	ID         int64           `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64           `json:"customer_id" gorm:"not null;uniqueIndex:ux_sales_customer_period,priority:1"`
	Period     string          `json:"period"      gorm:"type:char(7);not null;uniqueIndex:ux_sales_customer_period,priority:2"`
	LegalName  string          `json:"legal_name"  gorm:"type:varchar(255)"`
	Net        decimal.Decimal `json:"net"         gorm:"type:decimal(14,2)"`
	VAT        decimal.Decimal `json:"vat"         gorm:"type:decimal(14,2)"`
	Total      decimal.Decimal `json:"total"       gorm:"type:decimal(14,2)"`
}

// TableName returns the database table name for SalesSummary.
func (SalesSummary) TableName() string { return "sales_summaries" }

// PurchasesSummary is the aggregated purchases figures for one
// customer/period.
type PurchasesSummary struct {
	ID         int64           `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64           `json:"customer_id" gorm:"not null;uniqueIndex:ux_purchases_customer_period,priority:1"`
	Period     string          `json:"period"      gorm:"type:char(7);not null;uniqueIndex:ux_purchases_customer_period,priority:2"`
	LegalName  string          `json:"legal_name"  gorm:"type:varchar(255)"`
	Net        decimal.Decimal `json:"net"         gorm:"type:decimal(14,2)"`
	VAT        decimal.Decimal `json:"vat"         gorm:"type:decimal(14,2)"`
	Total      decimal.Decimal `json:"total"       gorm:"type:decimal(14,2)"`
}

// TableName returns the database table name for PurchasesSummary.
func (PurchasesSummary) TableName() string { return "purchases_summaries" }

// ResultSummary is the net result (sales minus purchases) for one
// customer/period.
type ResultSummary struct {
	ID             int64           `json:"id"              gorm:"primaryKey;autoIncrement"`
	CustomerID     int64           `json:"customer_id"     gorm:"not null;uniqueIndex:ux_result_customer_period,priority:1"`
	Period         string          `json:"period"          gorm:"type:char(7);not null;uniqueIndex:ux_result_customer_period,priority:2"`
	LegalName      string          `json:"legal_name"      gorm:"type:varchar(255)"`
	SalesTotal     decimal.Decimal `json:"sales_total"     gorm:"type:decimal(14,2)"`
	PurchasesTotal decimal.Decimal `json:"purchases_total" gorm:"type:decimal(14,2)"`
	Result         decimal.Decimal `json:"result"          gorm:"type:decimal(14,2)"`
}

// TableName returns the database table name for ResultSummary.
func (ResultSummary) TableName() string { return "result_summaries" }

// Document is a stored artifact the office shares with the customer
// (constancias, DDJJ, receipts).
type Document struct {
	ID           int64      `json:"id"            gorm:"primaryKey;autoIncrement"`
	CustomerID   int64      `json:"customer_id"   gorm:"not null;index"`
	Kind         string     `json:"kind"          gorm:"type:varchar(64);not null;default:'documento'"`
	Title        string     `json:"title"         gorm:"type:varchar(255);not null;default:'Documento'"`
	FileURL      *string    `json:"file_url"      gorm:"type:varchar(512)"`
	DocumentDate *time.Time `json:"document_date"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }
