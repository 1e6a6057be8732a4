package restapi

// ResponseType dictates the shape of an API response.
type ResponseType int

const (
	// ResponseTypeError marks an error response.
	ResponseTypeError ResponseType = 1

	// ResponseTypeResourceSet marks a response whose data field holds a
	// list of resources. Resource sets are the only responses the
	// dispatcher paginates.
	ResponseTypeResourceSet ResponseType = 2

	// ResponseTypeSingleResource marks a response whose data field holds
	// exactly one resource.
	ResponseTypeSingleResource ResponseType = 3
)

// EnumValue returns the wire value for the response type.
func (t ResponseType) EnumValue() int { return int(t) }

// Response is the result of one endpoint invocation. Handlers create it,
// the dispatcher stamps pagination and runtime onto it before it is
// serialized, and it is never persisted.
type Response struct {
	Type    ResponseType
	Success bool
	Data    any

	// Error fields, only meaningful when Success is false.
	ErrorCode    int
	ErrorMessage string

	// Pagination. Paginate defaults to true for resource sets; the
	// dispatcher fills the remaining fields.
	Paginate   bool
	Page       int
	Limit      int
	TotalItems int
	LastPage   int

	// Runtime is the elapsed dispatch wall time in milliseconds.
	Runtime float64
}

// NewResponse returns a successful Response of the given type with
// pagination enabled, mirroring how handlers construct their results.
func NewResponse(t ResponseType) *Response {
	return &Response{
		Type:     t,
		Success:  true,
		Paginate: true,
	}
}
