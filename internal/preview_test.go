package internal

import "testing"

func TestBuildPreview(t *testing.T) {
	tests := []struct {
		name    string
		desc    FileDescriptor
		style   PreviewStyle
		url     string
		lazy    bool
		muted   bool
		opens   bool
		wantPos float64
	}{
		{
			name:  "image",
			desc:  FileDescriptor{Name: "a.png", Kind: KindAsset},
			style: PreviewThumbnail, url: "http://h/api/sessions/s1/assets/a.png",
			lazy: true, opens: true,
		},
		{
			name:  "video",
			desc:  FileDescriptor{Name: "clip.mp4", Kind: KindOutput},
			style: PreviewHoverVideo, url: "http://h/api/sessions/s1/outputs/clip.mp4",
			muted: true, opens: true, wantPos: PosterTime,
		},
		{
			name:  "audio",
			desc:  FileDescriptor{Name: "v.mp3", Kind: KindAsset},
			style: PreviewAudioIcon, url: "http://h/api/sessions/s1/assets/v.mp3",
			opens: true,
		},
		{
			name:  "other",
			desc:  FileDescriptor{Name: "script.txt", Kind: KindAsset},
			style: PreviewFileIcon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := newRecordingOpener()
			p := BuildPreview(tt.desc, "s1", staticURLs{}, target)

			if p.Style != tt.style || p.URL != tt.url || p.Lazy != tt.lazy || p.Muted != tt.muted {
				t.Errorf("preview = %+v", p)
			}
			if p.Position() != tt.wantPos {
				t.Errorf("Position() = %v, want %v", p.Position(), tt.wantPos)
			}
			if got := p.DoubleClick(); got != tt.opens {
				t.Fatalf("DoubleClick() = %v, want %v", got, tt.opens)
			}
			if !tt.opens {
				if target.count() != 0 {
					t.Error("unsupported preview should not open the pane")
				}
				return
			}
			req := target.next(t)
			if req.Source != SourceLocal || req.Timestamp != nil || req.AutoplayDelay != 0 {
				t.Errorf("request = %+v, want local open without seek or autoplay", req)
			}
			if req.Name != tt.desc.Name || req.Kind != tt.desc.Kind || req.URL != tt.url {
				t.Errorf("request = %+v", req)
			}
		})
	}
}

func TestPreviewHover(t *testing.T) {
	p := BuildPreview(FileDescriptor{Name: "clip.mp4", Kind: KindAsset}, "s1", staticURLs{}, nil)

	p.Hover(true)
	if !p.Playing() {
		t.Error("hover should play the thumbnail")
	}
	p.Hover(false)
	if p.Playing() || p.Position() != PosterTime {
		t.Errorf("hover exit: playing=%v position=%v", p.Playing(), p.Position())
	}

	img := BuildPreview(FileDescriptor{Name: "a.png"}, "s1", staticURLs{}, nil)
	img.Hover(true)
	if img.Playing() {
		t.Error("image thumbnails do not play")
	}
	if img.DoubleClick() {
		t.Error("DoubleClick() without a pane should report false")
	}
}
