package roomrequest

type CreateReq struct {
	RoomID  int64  `json:"room_id" validate:"required,gt=0"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Purpose string `json:"purpose" validate:"required"`
}

type ProcessReq struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type ProcessLeaveReq struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
