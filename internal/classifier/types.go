package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	CodeSuccess = "SUCCESS"
	CodeFailure = "FAILURE"
)

// Request is the body posted to the classification service. Context carries
// the reference documents (candidate categories, type codes) verbatim.
type Request struct {
	Context      []json.RawMessage `json:"context"`
	Transactions []Transaction     `json:"transactions"`
}

type Transaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
}

type Response struct {
	Code   string         `json:"code"`
	Items  []Item         `json:"items,omitempty"`
	Errors []ServiceError `json:"errors,omitempty"`
}

// Item is one classified transaction. Category is nil when the service could
// not classify it.
type Item struct {
	ID       ItemID    `json:"id"`
	Category *Category `json:"category"`
}

type Category struct {
	Category          string  `json:"category"`
	Subcategory       string  `json:"subcategory"`
	Confidence        float64 `json:"confidence"`
	TransactionNumber *int    `json:"transaction_number,omitempty"`
}

type ServiceError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e ServiceError) String() string {
	if e.Code == "" {
		return e.Description
	}
	return e.Code + ": " + e.Description
}

// ItemID accepts both "12" and 12 on the wire.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Index reads the id as the zero-based row position it was built from.
func (id ItemID) Index() (int, error) {
	return strconv.Atoi(string(id))
}
