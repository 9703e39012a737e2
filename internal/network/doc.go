// Package network is the thin client for the AO compute network: spawning
// processes, sending evaluation messages, fetching evaluation results,
// looking up existing processes over the gateway's GraphQL endpoint, and
// fetching the network's default module/scheduler configuration.
package network
