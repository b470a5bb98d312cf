package domain

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusLent      ItemStatus = "lent"
)

type ItemCondition string

const (
	ItemConditionExcellent  ItemCondition = "excellent"
	ItemConditionGood       ItemCondition = "good"
	ItemConditionAcceptable ItemCondition = "acceptable"
	ItemConditionWorn       ItemCondition = "worn"
)

// Item is a lendable thing owned by a platform user. CurrentLendingID
// mirrors the one active lending holding the item while Status is lent.
type Item struct {
	ID               string        `json:"id"`
	OwnerUsername    string        `json:"owner_username"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Category         string        `json:"category"`
	Condition        ItemCondition `json:"condition"`
	Status           ItemStatus    `json:"status"`
	CurrentLendingID *string       `json:"current_lending_id,omitempty"`
	CreatedOn        string        `json:"created_on"`
	UpdatedOn        string        `json:"updated_on"`
}
