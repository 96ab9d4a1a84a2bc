package domain

type Product struct {
	ID         int64   `json:"id_key"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	CategoryID int64   `json:"category_id"`
}

type Category struct {
	ID   int64  `json:"id_key"`
	Name string `json:"name"`
}

type Address struct {
	ID       int64  `json:"id_key"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	City     string `json:"city"`
	ClientID int64  `json:"client_id"`
}
