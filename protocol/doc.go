/*
Package protocol is the package for the Aries protocol handlers. Each protocol
has a Service for the controller side and a Handler which the dispatcher calls
for the inbound messages. The message models are in the std package and the
records with their state machines are in agent/psm.
*/
package protocol
