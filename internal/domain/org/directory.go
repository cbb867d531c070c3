// Package org exposes the slice of the organisation directory the engine
// needs: employee existence, position holders and department membership.
package org

import (
	"context"
	"errors"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionVacant   = errors.New("position has no active holder")
)

type Directory interface {
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)

	// PositionHolder returns the active employee holding positionID
	PositionHolder(ctx context.Context, positionID string) (string, error)

	EmployeesInDepartment(ctx context.Context, departmentID string) ([]string, error)
	EmployeesInPosition(ctx context.Context, positionID string) ([]string, error)
}
