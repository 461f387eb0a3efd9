package rpc

// Status is the response header every breeze RPC echoes back. Handlers never
// propagate business failures as gRPC errors; they return success=false with
// a human-readable errmsg instead.
type Status struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
	Errmsg    string `json:"errmsg,omitempty"`
}

// OK returns a success header echoing reqID.
func OK(reqID string) Status {
	return Status{RequestID: reqID, Success: true}
}

// Fail returns a failure header carrying errmsg.
func Fail(reqID, errmsg string) Status {
	return Status{RequestID: reqID, Errmsg: errmsg}
}
