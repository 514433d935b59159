// Package marklost implements the Mark Lost use case: closing an open loan as
// LOST and pulling its title out of circulation until it is restored through
// maintenance.
package marklost
