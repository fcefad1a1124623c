// Package auction retrieves every page of the auction house and projects the
// entries into display records.
package auction

// Entry is one auction as returned by the upstream API.
type Entry struct {
	// Auctioneer is the owner's player UUID.
	Auctioneer  string `json:"auctioneer"`
	ItemName    string `json:"item_name"`
	StartingBid int64  `json:"starting_bid"`
	// End is an absolute epoch timestamp in milliseconds.
	End int64 `json:"end"`
}

// Page is the parsed body of one page of GET /auctions.
type Page struct {
	Success       bool    `json:"success"`
	Page          int     `json:"page"`
	TotalPages    int     `json:"totalPages"`
	TotalAuctions int     `json:"totalAuctions"`
	LastUpdated   int64   `json:"lastUpdated"`
	Auctions      []Entry `json:"auctions"`
}

// Record is a display-ready auction.
type Record struct {
	Owner    string `json:"playerUUID"`
	ItemName string `json:"itemName"`
	Price    string `json:"price"`
	TimeLeft string `json:"timeLeft"`
}
