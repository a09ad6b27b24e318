// Package model defines the shared data types for the monitoring system.
//
// Types mirror the task-queue backend's REST API wire format:
//   - Task: a unit of work with lifecycle status and attempt tracking
//   - Worker: a queue consumer process
//   - QueueInfo: per-queue depth and throughput counters
//   - DashboardStats: aggregate numbers for the overview panel
//   - MetricsSnapshot: time-series sample for charting
package model
