// tbrel is a tool for cutting releases of the Singer BigQuery target. It
// packages the project into installable distributions, publishes them to a
// package index, and builds a container image that embeds a decoded
// service-account credential so the test suite can run against a real
// warehouse project.
package tbrel
