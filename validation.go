package tutorkit

// Validatable is implemented by argument structs with checks beyond the schema
// (enum values, cross-field rules). Called after unmarshaling.
type Validatable interface {
	Validate() error
}

type schemaValidator interface {
	Validate(v any) error
}

func validateAgainstSchema(s schemaValidator, v any) error {
	if err := s.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}
