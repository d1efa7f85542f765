package cimcore

import "github.com/smnsjas/go-cimcore/cim"

// Instance and Class implement the shared element-access contract.
var (
	_ cim.ElementAccess = (*Instance)(nil)
	_ cim.ElementAccess = (*Class)(nil)
)
