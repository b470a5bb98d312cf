package domain

// LendingStatus represents the lifecycle stage of a lending
type LendingStatus string

const (
	LendingStatusPending         LendingStatus = "pending"
	LendingStatusNegotiating     LendingStatus = "negotiating"
	LendingStatusAccepted        LendingStatus = "accepted"
	LendingStatusActive          LendingStatus = "active"
	LendingStatusReturnInitiated LendingStatus = "return-initiated"
	LendingStatusCompleted       LendingStatus = "completed"
	LendingStatusDeclined        LendingStatus = "declined"
	LendingStatusCancelled       LendingStatus = "cancelled"
	LendingStatusDisputed        LendingStatus = "disputed"
)

// MaxNegotiationRounds caps term renegotiation before the lending is
// auto-declined.
const MaxNegotiationRounds = 3

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s LendingStatus) bool {
	switch s {
	case LendingStatusPending, LendingStatusNegotiating, LendingStatusAccepted,
		LendingStatusActive, LendingStatusReturnInitiated, LendingStatusCompleted,
		LendingStatusDeclined, LendingStatusCancelled, LendingStatusDisputed:
		return true
	}
	return false
}

// Terminal reports whether a lending in status s can never transition again.
func (s LendingStatus) Terminal() bool {
	switch s {
	case LendingStatusCompleted, LendingStatusDeclined, LendingStatusCancelled:
		return true
	}
	return false
}

// ExtensionStatus is the state of a return-date extension request.
type ExtensionStatus string

const (
	ExtensionStatusPending  ExtensionStatus = "pending"
	ExtensionStatusApproved ExtensionStatus = "approved"
	ExtensionStatusDenied   ExtensionStatus = "denied"
)

// BorrowerInfo describes who is borrowing the item. External borrowers have
// no platform account and are tracked by contact details alone.
type BorrowerInfo struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Username       string `json:"username,omitempty"`
	IsPlatformUser bool   `json:"is_platform_user"`
}

// LendingTerms are the agreed conditions of a lending. Timestamps are epoch
// milliseconds.
type LendingTerms struct {
	DateLent             int64   `json:"date_lent"`
	ExpectedReturnDate   int64   `json:"expected_return_date"`
	RequireDeposit       bool    `json:"require_deposit"`
	DepositAmount        float64 `json:"deposit_amount"`
	ConditionExpectation string  `json:"condition_expectation,omitempty"`
	AllowExtensions      bool    `json:"allow_extensions"`
	Notes                string  `json:"notes,omitempty"`
}

// NegotiationEntry records one counter-proposal during term negotiation.
type NegotiationEntry struct {
	Round      int          `json:"round"`
	ProposedBy string       `json:"proposed_by"`
	Terms      LendingTerms `json:"terms"`
	Message    string       `json:"message,omitempty"`
	Timestamp  int64        `json:"timestamp"`
}

// ExtensionRequest is a borrower's request to push out the return date.
type ExtensionRequest struct {
	NewReturnDate int64           `json:"new_return_date"`
	Reason        string          `json:"reason,omitempty"`
	RequestedAt   int64           `json:"requested_at"`
	Status        ExtensionStatus `json:"status"`
}

// Reminder records an automated return reminder sent for a lending.
type Reminder struct {
	Type   string `json:"type"`
	SentAt int64  `json:"sent_at"`
}

// Lending is a single loan of an item from a lender to a borrower.
type Lending struct {
	ID                 string             `json:"id"`
	ItemID             string             `json:"item_id"`
	LenderUsername     string             `json:"lender_username"`
	BorrowerUsername   string             `json:"borrower_username,omitempty"`
	BorrowerInfo       BorrowerInfo       `json:"borrower_info"`
	Terms              LendingTerms       `json:"terms"`
	Status             LendingStatus      `json:"status"`
	IsBorrowRequest    bool               `json:"is_borrow_request"`
	NegotiationRounds  int                `json:"negotiation_rounds"`
	NegotiationHistory []NegotiationEntry `json:"negotiation_history,omitempty"`
	ConditionAtLending string             `json:"condition_at_lending,omitempty"`
	ConditionAtReturn  string             `json:"condition_at_return,omitempty"`
	ActualReturnDate   *int64             `json:"actual_return_date,omitempty"`
	ReturnInitiatedAt  *int64             `json:"return_initiated_at,omitempty"`
	ReturnNotes        string             `json:"return_notes,omitempty"`
	DeclineReason      string             `json:"decline_reason,omitempty"`
	DeclinedBy         string             `json:"declined_by,omitempty"`
	CancelledBy        string             `json:"cancelled_by,omitempty"`
	DisputeReason      string             `json:"dispute_reason,omitempty"`
	ExtensionRequest   *ExtensionRequest  `json:"extension_request,omitempty"`
	LenderRating       *int               `json:"lender_rating,omitempty"`
	BorrowerRating     *int               `json:"borrower_rating,omitempty"`
	Reminders          []Reminder         `json:"reminders,omitempty"`
	Version            int32              `json:"version"`
	CreatedOn          int64              `json:"created_on"`
	UpdatedOn          int64              `json:"updated_on"`
}

// IsParty reports whether username is the lender or the platform borrower.
func (l *Lending) IsParty(username string) bool {
	if username == "" {
		return false
	}
	return username == l.LenderUsername || username == l.BorrowerUsername
}

// OtherParty returns the counterparty's username, or "" for an external
// borrower.
func (l *Lending) OtherParty(username string) string {
	if username == l.LenderUsername {
		return l.BorrowerUsername
	}
	return l.LenderUsername
}
