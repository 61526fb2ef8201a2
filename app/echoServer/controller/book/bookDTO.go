package book

type BookReq struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	ISBN        string  `json:"isbn" validate:"required"`
	Copies      int64   `json:"copies" validate:"required,gte=1"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
}
