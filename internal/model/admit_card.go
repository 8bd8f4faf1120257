package model

// AdmitCard is the read-only document the remote service issues for an
// application in a subcategory.  RollNumber is empty until the office
// assigns seats.
type AdmitCard struct {
	StudentName     string    `json:"student_name"`
	FatherName      string    `json:"father_name"`
	MotherName      string    `json:"mother_name"`
	Gender          string    `json:"gender"`
	DOB             string    `json:"dob"`
	StudentClass    string    `json:"student_class"`
	ApplicantNumber string    `json:"applicant_number"`
	RollNumber      string    `json:"roll_number,omitempty"`
	SubcategoryName string    `json:"subcategory_name,omitempty"`
	PostTitle       string    `json:"post_title,omitempty"`
	Photo           string    `json:"photo,omitempty"`
	Signature       string    `json:"signature,omitempty"`
	SeatPlan        *SeatPlan `json:"seat_plan,omitempty"`
}

// SeatPlan holds exam logistics for a single roll number.
type SeatPlan struct {
	ID           int64  `json:"id,omitempty"`
	PostCode     string `json:"post_code,omitempty"`
	PostName     string `json:"post_name,omitempty"`
	ExamCenter   string `json:"exam_center"`
	Building     string `json:"building"`
	Floor        string `json:"floor"`
	RoomNo       string `json:"room_no"`
	ExamDateTime string `json:"exam_date_time"`
	Roll         string `json:"roll,omitempty"`
}
