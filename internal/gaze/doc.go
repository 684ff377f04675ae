// Package gaze holds fixation sequences and the episode bookkeeping shared by
// the attention models.
//
// Fixation positions are normalized to the display: (0,0) is the top-left
// corner and (1,1) the bottom-right. Episodes carry the pixel size of the
// stimulus they were recorded on so models can be rasterized at that size.
//
// Episodes are bucketed into groups by a GroupingKey, either by cohort or by
// specification within a cohort. Accumulation and validation always work on
// one group at a time.
package gaze
