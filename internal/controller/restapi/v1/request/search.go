package request

type Search struct {
	SearchTerm string `query:"searchTerm" validate:"max=128"`
	OrderBy    string `query:"orderBy" validate:"omitempty,oneof=make new end"`
	FilterBy   string `query:"filterBy" validate:"omitempty,oneof=finished endingSoon live"`
	Seller     string `query:"seller"`
	Winner     string `query:"winner"`
	PageNumber int    `query:"pageNumber" validate:"gte=0"`
	PageSize   int    `query:"pageSize" validate:"gte=0,lte=100"`
}
