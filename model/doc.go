// Package model defines the model invocation boundary: an ordered message
// sequence plus tool declarations in, a final answer or a list of tool calls
// out. Provider subpackages adapt concrete vendor SDKs to this interface; a
// MockModel supports scripted deterministic tests.
package model
