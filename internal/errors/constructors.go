package errors

// Convenience functions for common error patterns

// Config errors

func ConfigInvalid(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be loaded").
		WithContext("path", path)
}

func ConfigExists(path string) *ClassifiedError {
	return New(CategoryConfig, SeverityFatal, "configuration file already exists (use --force to overwrite)").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ClassifiedError {
	return New(CategoryValidation, SeverityFatal, "validation failed: "+field+": "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Generation errors

func ScanFailed(root string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryScan, SeverityFatal, "project scan failed").
		WithContext("root", root)
}

func RenderFailed(document string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryRender, SeverityFatal, "document rendering failed").
		WithContext("document", document)
}

func WriteFailed(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "document write failed").
		WithContext("path", path)
}

func StaleDocuments(paths []string) *ClassifiedError {
	return New(CategoryStale, SeverityError, "generated documents are out of date").
		WithContext("documents", paths)
}

// Infrastructure errors

func StoreError(operation string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryStore, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}

func PublishFailed(subject string, cause error) *ClassifiedError {
	return WrapRetryable(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}

func InternalError(message string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
