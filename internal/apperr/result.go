package apperr

// Result is the uniform tagged result handed to the presentation layer.
type Result struct {
	Success bool        `json:"success"`
	Error   *string     `json:"error"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data"`
}

func OK(data interface{}) Result {
	return Result{Success: true, Data: data}
}

func Fail(err error) Result {
	msg := Message(err)
	return Result{Success: false, Error: &msg, Kind: KindOf(err).String()}
}
