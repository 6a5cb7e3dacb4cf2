// Package scenario reads declarative event scenarios.
//
// A scenario is an ordered list of step blocks, written in HCL or in the
// HCL JSON syntax. Steps register and remove handlers, clear hosts and
// fire native events against a page:
//
//	step "bind-box" {
//	  action   = "on"
//	  host     = "#app"
//	  type     = "click"
//	  selector = ".box"
//	  handler  = "box"
//	}
//
//	step "click-inner" {
//	  action = "fire"
//	  target = ".inner"
//	  type   = "click"
//	}
package scenario
