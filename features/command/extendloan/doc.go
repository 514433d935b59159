// Package extendloan implements the Extend Loan use case: pushing out the due
// date of an ACTIVE loan within the renewal cap, as long as nobody is waiting
// in the title's hold queue.
package extendloan
