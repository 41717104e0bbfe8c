//go:build !noboost

package model

const boostingAvailable = true
