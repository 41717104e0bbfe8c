//go:build noboost

package model

// Built with the noboost tag: "xgb" is known but falls back to the forest.
const boostingAvailable = false
