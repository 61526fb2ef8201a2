package bookrequest

type CreateReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type ProcessReq struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Reason *string `json:"reason"`
}

type ProcessReturnReq struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
