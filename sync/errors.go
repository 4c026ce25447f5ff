// ABOUTME: Sentinel errors for remote CRM configuration and link conflicts
// ABOUTME: These need an operator, not a retry
package sync

import "errors"

var (
	// ErrNoLabelField means the remote CRM has no label-type person field.
	ErrNoLabelField = errors.New("no label field configured in remote CRM")
	// ErrNoLabelOptions means the label field exists but has no options.
	ErrNoLabelOptions = errors.New("label field has no options in remote CRM")
	// ErrRemotePersonTaken means another contact is already linked to the remote person.
	ErrRemotePersonTaken = errors.New("remote person is linked to another contact")
)
